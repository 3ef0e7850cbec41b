package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/martify/martify-backend/config"
	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/internal/db"
	"github.com/martify/martify-backend/pkg/util"
	"github.com/xuri/excelize/v2"
)

// Imports a seller catalog from an XLSX workbook. Expected columns:
//
//	seller_email | seller_name | product_name | description | category | price | stock | image_url
//
// Sellers are created on first sight with a placeholder password and must
// reset it before signing in.
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

	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, err := readCatalogRows(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d\n", len(rows))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	sellerIDs := make(map[string]uint)
	imported := 0

	for _, row := range rows {
		sellerID, ok := sellerIDs[row.SellerEmail]
		if !ok {
			sellerID, err = findOrCreateSeller(userRepo, row.SellerEmail, row.SellerName)
			if err != nil {
				log.Fatalf("Failed to create seller %s: %v", row.SellerEmail, err)
			}
			sellerIDs[row.SellerEmail] = sellerID
		}

		product := &model.Product{
			SellerID:      sellerID,
			Name:          row.ProductName,
			Description:   row.Description,
			Category:      row.Category,
			Price:         row.Price,
			StockQuantity: row.Stock,
			IsActive:      true,
		}
		if row.ImageURL != "" {
			product.Images = pq.StringArray{row.ImageURL}
		}

		if err := productRepo.Create(product); err != nil {
			log.Fatalf("Failed to create product %q: %v", row.ProductName, err)
		}
		imported++

		if imported%100 == 0 {
			fmt.Printf("Imported %d products...\n", imported)
		}
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d (sellers: %d)\n", imported, len(sellerIDs))
}

type catalogRow struct {
	SellerEmail string
	SellerName  string
	ProductName string
	Description string
	Category    string
	Price       float64
	Stock       int
	ImageURL    string
}

func readCatalogRows(filePath string) ([]catalogRow, error) {
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

	var catalog []catalogRow
	skippedCount := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < 7 {
			skippedCount++
			continue
		}

		sellerEmail := strings.TrimSpace(row[0])
		sellerName := strings.TrimSpace(row[1])
		productName := strings.TrimSpace(row[2])
		description := strings.TrimSpace(row[3])
		category := strings.TrimSpace(row[4])
		priceStr := strings.TrimSpace(row[5])
		stockStr := strings.TrimSpace(row[6])
		imageURL := ""
		if len(row) > 7 {
			imageURL = strings.TrimSpace(row[7])
		}

		if sellerEmail == "" || productName == "" || category == "" {
			skippedCount++
			continue
		}

		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price <= 0 {
			skippedCount++
			continue
		}

		stock, err := strconv.Atoi(stockStr)
		if err != nil || stock < 0 {
			skippedCount++
			continue
		}

		catalog = append(catalog, catalogRow{
			SellerEmail: sellerEmail,
			SellerName:  sellerName,
			ProductName: productName,
			Description: description,
			Category:    category,
			Price:       price,
			Stock:       stock,
			ImageURL:    imageURL,
		})
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid products: %d\n", len(catalog))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)

	return catalog, nil
}

func findOrCreateSeller(userRepo repository.UserRepository, email, name string) (uint, error) {
	existing, err := userRepo.FindByEmail(email)
	if err == nil {
		return existing.ID, nil
	}

	hash, err := util.HashPassword("changeme-" + email)
	if err != nil {
		return 0, err
	}

	if name == "" {
		name = email
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     name,
		Role:         model.RoleSeller,
	}
	if err := userRepo.Create(user); err != nil {
		return 0, err
	}
	return user.ID, nil
}
