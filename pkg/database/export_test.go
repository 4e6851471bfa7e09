package database

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

func goquC(column string, value interface{}) exp.Expression {
	return goqu.C(column).Eq(value)
}
