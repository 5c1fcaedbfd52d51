package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zhengcoach/zhengcoach/internal/database"
)

func main() {
	var (
		dbPath         = flag.String("db", "./zhengcoach.db", "Path to the SQLite database")
		migrationsPath = flag.String("migrations", "./migrations", "Path to migrations directory")
		status         = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	if env := os.Getenv("DB_PATH"); env != "" {
		*dbPath = env
	}

	db, err := database.NewDB(database.Config{Path: *dbPath})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Conn())

	if *status {
		if err := migrator.Initialize(); err != nil {
			log.Fatal("Failed to initialize migrator:", err)
		}

		applied, err := migrator.GetAppliedMigrations()
		if err != nil {
			log.Fatal("Failed to get applied migrations:", err)
		}

		migrations, err := migrator.LoadMigrations(*migrationsPath)
		if err != nil {
			log.Fatal("Failed to load migrations:", err)
		}

		fmt.Println("Migration Status:")
		fmt.Println("=================")
		for _, m := range migrations {
			state := "pending"
			if applied[m.Version] {
				state = "applied"
			}
			fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
		}
		return
	}

	fmt.Printf("Running migrations from %s...\n", *migrationsPath)
	if err := migrator.Run(*migrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	fmt.Println("Migrations completed successfully!")
}
