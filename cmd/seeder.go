package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/veedsify/mightyshare-api/internal/wallet"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with thrift packages, permissions and an admin user for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"user_permissions", "transactions", "payments", "settlements", "complaints", "thrift_subscriptions", "accounts", "users", "permissions", "thrift_packages"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminEmail := "admin@mightyshare.ng"
		var exists int
		row := db.Raw("SELECT 1 FROM users WHERE email = ?", adminEmail).Row()
		adminExists := false
		if err := row.Scan(&exists); err == nil {
			fmt.Println("admin user already exists; will ensure permissions")
			adminExists = true
		}

		if !adminExists {
			if err := db.Exec(
				"INSERT INTO users (email, phone, first_name, last_name, password_hash, registration_paid, referral_code, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, ?, true, now(), now())",
				adminEmail, "+2348000000001", "Mighty", "Admin", string(hash), "MSADMIN1").Error; err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		var adminUserID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", adminEmail).Row().Scan(&adminUserID); err != nil {
			log.Fatalf("failed to lookup admin user id: %v", err)
		}

		// admin also gets a wallet so settlement flows can be exercised
		var accountExists int
		if err := db.Raw("SELECT 1 FROM accounts WHERE user_id = ?", adminUserID).Row().Scan(&accountExists); err != nil {
			number, err := wallet.GenerateAccountNumber()
			if err != nil {
				log.Fatalf("failed to generate account number: %v", err)
			}
			if err := db.Exec(
				"INSERT INTO accounts (user_id, account_number, balance, total_contributions, rewards, total_debt, referral_earnings, created_at, updated_at) VALUES (?, ?, 0, 0, 0, 0, 0, now(), now())",
				adminUserID, number).Error; err != nil {
				log.Fatalf("failed to insert admin account: %v", err)
			}
			fmt.Println("Seeded admin wallet account:", number)
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"approve_settlements", "Can approve or reject settlement requests"},
			{"resolve_complaints", "Can resolve member complaints"},
			{"view_all_settlements", "Can view settlement requests of all members"},
		}

		for _, p := range permissions {
			var pid int64
			row := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row()
			if err := row.Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
			}
		}

		for _, p := range permissions {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err != nil {
				log.Fatalf("permission not found after insert %s: %v", p.Name, err)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", adminUserID, pid).Row().Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", adminUserID, pid).Error; err != nil {
				log.Fatalf("failed to grant permission %s to admin user: %v", p.Name, err)
			}
		}

		fmt.Println("Granted all permissions to admin user:", adminEmail)

		packages := []struct {
			Name         string
			Desc         string
			Price        int64
			Contribution int64
			Interval     string
		}{
			{"starter", "entry thrift plan with weekly contributions", 2500, 1000, "weekly"},
			{"standard", "mid-tier thrift plan with weekly contributions", 5000, 2500, "weekly"},
			{"premium", "high-tier thrift plan with monthly contributions", 10000, 10000, "monthly"},
		}

		for _, p := range packages {
			var exists int
			row := db.Raw("SELECT 1 FROM thrift_packages WHERE name = ?", p.Name).Row()
			if err := row.Scan(&exists); err != nil {
				if err := db.Exec(
					`INSERT INTO thrift_packages (name, description, price, contribution, "interval", is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())`,
					p.Name, p.Desc, p.Price, p.Contribution, p.Interval).Error; err != nil {
					log.Fatalf("failed to insert thrift package %s: %v", p.Name, err)
				}
				fmt.Printf("Seeded thrift package: %s\n", p.Name)
			}
		}

		fmt.Println("Thrift packages seeded successfully")
	},
}
