package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/veloura/veloura-backend/config"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/db"
	"github.com/lib/pq"
	"github.com/xuri/excelize/v2"
)

// Imports a product catalog from an xlsx workbook. One row per variant;
// rows sharing a product name are grouped into one product with multiple
// size/color variants.
//
// Expected columns:
//
//	0 name | 1 description | 2 category | 3 brand | 4 base_price
//	5 discount | 6 image_url | 7 size | 8 color | 9 variant_price | 10 stock
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, err := readProductsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d\n", len(products))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 100
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := db.GetDB().CreateInBatches(products, batchSize).Error; err != nil {
		log.Fatal("Failed to bulk create products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

func readProductsFromXLSX(filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	productIndex := make(map[string]int)
	seenVariants := make(map[string]bool)
	skippedCount := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < 11 {
			skippedCount++
			continue
		}

		name := strings.TrimSpace(row[0])
		description := strings.TrimSpace(row[1])
		category := strings.TrimSpace(row[2])
		brand := strings.TrimSpace(row[3])
		basePriceStr := strings.TrimSpace(row[4])
		discountStr := strings.TrimSpace(row[5])
		imageURL := strings.TrimSpace(row[6])
		size := strings.TrimSpace(row[7])
		color := strings.TrimSpace(row[8])
		variantPriceStr := strings.TrimSpace(row[9])
		stockStr := strings.TrimSpace(row[10])

		if name == "" || category == "" || size == "" || color == "" {
			skippedCount++
			continue
		}

		basePrice, err := strconv.ParseFloat(basePriceStr, 64)
		if err != nil || basePrice <= 0 {
			skippedCount++
			continue
		}

		discount, _ := strconv.ParseFloat(discountStr, 64)
		if discount < 0 || discount > 100 {
			discount = 0
		}

		// Zero variant price falls back to the product's effective price
		variantPrice, _ := strconv.ParseFloat(variantPriceStr, 64)
		if variantPrice < 0 {
			variantPrice = 0
		}

		stock, err := strconv.Atoi(stockStr)
		if err != nil || stock < 0 {
			stock = 0
		}

		variantKey := fmt.Sprintf("%s|%s|%s", name, size, color)
		if seenVariants[variantKey] {
			skippedCount++
			continue
		}
		seenVariants[variantKey] = true

		variant := model.ProductVariant{
			Size:     size,
			Color:    color,
			Price:    variantPrice,
			Stock:    stock,
			Image:    imageURL,
			IsActive: true,
		}

		if idx, exists := productIndex[name]; exists {
			products[idx].Variants = append(products[idx].Variants, variant)
			continue
		}

		product := model.Product{
			Name:        name,
			Description: description,
			Category:    category,
			Brand:       brand,
			BasePrice:   basePrice,
			Discount:    discount,
			IsActive:    true,
			Variants:    []model.ProductVariant{variant},
		}
		if imageURL != "" {
			product.Images = pq.StringArray{imageURL}
		}

		productIndex[name] = len(products)
		products = append(products, product)

		if len(products)%100 == 0 {
			fmt.Printf("Processed %d products...\n", len(products))
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid products: %d\n", len(products))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)

	return products, nil
}
