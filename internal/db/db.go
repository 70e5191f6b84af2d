package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Connect opens the MySQL database and dies on failure; the server
// cannot do anything useful without its history store.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}
