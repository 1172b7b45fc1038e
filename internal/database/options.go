package database

import (
	"fmt"

	"github.com/helixml/careerpath/domain/repository"
	"gorm.io/gorm"
)

// ApplyOptions builds a repository.Query from options and applies its
// conditions, ordering and pagination to a GORM session.
func ApplyOptions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	q := repository.Build(options...)
	db = applyConditions(db, q)

	for _, ord := range q.Orders() {
		dir := "DESC"
		if ord.Ascending() {
			dir = "ASC"
		}
		db = db.Order(fmt.Sprintf("%s %s", ord.Field(), dir))
	}

	if q.LimitValue() > 0 {
		db = db.Limit(q.LimitValue())
	}
	if q.OffsetValue() > 0 {
		db = db.Offset(q.OffsetValue())
	}
	return db
}

// ApplyConditions applies only WHERE conditions, for COUNT queries.
func ApplyConditions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	return applyConditions(db, repository.Build(options...))
}

func applyConditions(db *gorm.DB, q repository.Query) *gorm.DB {
	for _, cond := range q.Conditions() {
		switch {
		case cond.Unary():
			db = db.Where(fmt.Sprintf("%s %s", cond.Field(), cond.Operator()))
		default:
			db = db.Where(fmt.Sprintf("%s %s ?", cond.Field(), cond.Operator()), cond.Value())
		}
	}
	return db
}
