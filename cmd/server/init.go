package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zimmerman-team/dx.server/config"
	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/database"
	"github.com/zimmerman-team/dx.server/core/global"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database và indexes
	initRegistry()         // Đăng ký các collection vào registry
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.Datasets = "viz_datasets"
	global.MongoDB_ColNames.Charts = "viz_charts"
	global.MongoDB_ColNames.Reports = "viz_reports"

	logrus.Info("Initialized collection names")
}

// Hàm khởi tạo validator
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.MongoDB_ServerConfig = config.NewConfig()
	if global.MongoDB_ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	// Khởi tạo database và collections nếu chưa có
	if err := database.EnsureDatabaseAndCollections(global.MongoDB_Session); err != nil {
		logrus.Fatalf("Failed to ensure database and collections: %v", err)
	}
	logrus.Info("Ensured database and collections")

	// Đăng ký database handle vào registry để các bước sau dùng chung
	dbName := global.MongoDB_ServerConfig.MongoDB_DBName
	db := global.MongoDB_Session.Database(dbName)
	if _, err := global.RegistryDatabase.Register(dbName, db); err != nil {
		logrus.Fatalf("Failed to register database %s: %v", dbName, err)
	}

	// Khởi tạo các index cho các collection
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.Datasets), models.Dataset{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.Charts), models.Chart{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.Reports), models.Report{})
	logrus.Info("Created indexes")
}

// initRegistry đăng ký các collection MongoDB vào registry toàn cục
func initRegistry() {
	if err := registerCollections(global.MongoDB_ServerConfig); err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
	logrus.Info("Initialized collection registry")
}

// registerCollections đăng ký các collections MongoDB, dùng database handle đã
// được đăng ký trong RegistryDatabase
func registerCollections(cfg *config.Configuration) error {
	db, exists := global.RegistryDatabase.Get(cfg.MongoDB_DBName)
	if !exists {
		return fmt.Errorf("database %s is not registered", cfg.MongoDB_DBName)
	}
	colNames := []string{
		global.MongoDB_ColNames.Datasets,
		global.MongoDB_ColNames.Charts,
		global.MongoDB_ColNames.Reports,
	}

	for _, name := range colNames {
		registered, err := global.RegistryCollections.Register(name, db.Collection(name))
		if err != nil {
			logrus.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}

		if registered {
			logrus.Infof("Collection %s registered successfully", name)
		} else {
			logrus.Errorf("Collection %s already registered", name)
		}
	}

	return nil
}
