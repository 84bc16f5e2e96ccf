package repository

import (
	"shorturl-go/internal/model"
	"shorturl-go/pkg/logging"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(logger *zap.Logger, atomicLogLevel zap.AtomicLevel) {
	dsn := viper.GetString("db.dsn")
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logging.NewGormLogger(logger, logging.ToGormLogLevel(atomicLogLevel.Level())),
		// 唯一索引冲突需要翻译为 gorm.ErrDuplicatedKey，短键查重依赖它
		TranslateError: true,
	})
	if err != nil {
		logging.Logger.Fatal("Failed to connect database", zap.Error(err))
	}

	err = db.AutoMigrate(&model.ShortLink{}, &model.DailyStat{}, &model.ReservedKey{})
	if err != nil {
		logging.Logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	DB = db
}
