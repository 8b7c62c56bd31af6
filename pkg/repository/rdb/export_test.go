package rdb

func Rebind(driver, query string) string {
	return (&RDB{driver: driver}).rebind(query)
}
