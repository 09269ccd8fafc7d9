package mysql

import (
	"errors"
	"fmt"
	"time"

	"alumni_network/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// InitDB 打开 MySQL 连接；TranslateError 让唯一索引冲突统一成 gorm.ErrDuplicatedKey
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// 名称唯一且区分大小写；MySQL 默认排序规则忽略大小写，建表后改成 utf8mb4_bin
var binaryColumns = []struct {
	Table, Column, Type string
}{
	{"communities", "name", "varchar(140) NOT NULL"},
	{"community_roles", "name", "varchar(80) NOT NULL"},
}

// binaryCollationDDL sqlite 本身按字节比较，只有 MySQL 需要执行
func binaryCollationDDL(dialect string) []string {
	if dialect != "mysql" {
		return nil
	}
	stmts := make([]string, 0, len(binaryColumns))
	for _, c := range binaryColumns {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE `%s` MODIFY `%s` %s COLLATE utf8mb4_bin", c.Table, c.Column, c.Type))
	}
	return stmts
}

// Migrate 自动建表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return err
	}
	for _, stmt := range binaryCollationDDL(db.Dialector.Name()) {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// firstOrCreate 先查后插；并发插入撞唯一索引时视为没插入，回查胜出的那一行。
// 回查必须是加锁读：事务内的普通读还停在旧快照上，看不到对方刚提交的行
func firstOrCreate[T any](tx *gorm.DB, dst *T, where map[string]any) (bool, error) {
	err := tx.Where(where).First(dst).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err = tx.Create(dst).Error; err != nil {
		if isDuplicate(err) {
			return false, tx.Clauses(clause.Locking{Strength: "SHARE"}).Where(where).First(dst).Error
		}
		return false, err
	}
	return true, nil
}
