package configstore

import "strconv"

const (
	keyCurrent = "current"
	keyHistory = "config_history"
)

func versionKey(id string) string {
	return "config_" + id
}

func versionID(n int) string {
	return "v" + strconv.Itoa(n)
}

func parentOf(id string, n int) string {
	if n <= 1 {
		return ""
	}
	return versionID(n - 1)
}
