// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import "database/sql"

var ResultValue = resultValue

func DBSQL(db *DB) *sql.DB {
	return db.sql
}

// Rebind rewrites q as it would be for driver.
func Rebind(driver, q string) string {
	return (&DB{driver: driver}).rebind(q)
}
