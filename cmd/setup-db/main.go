package main

import (
	_ "embed"
	"log"

	"github.com/joho/godotenv"

	"github.com/finview/portfolio-tracker/internal/postgres"
)

//go:embed schema.sql
var schema string

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("can't detect .env file")
	}

	db, err := postgres.NewDB(postgres.NewConfigFromEnv().Setup())
	if err != nil {
		log.Fatalf("%s: can't connect to postgres", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("%s: can't apply schema", err)
	}

	log.Println("schema applied")
}
