package converter

import "strings"

var (
	converterRecordPrefix  = []byte("converter/record/")
	converterAccountPrefix = []byte("converter/account/")
	settingsKey            = []byte("converter/settings")
)

func converterKey(code string) []byte {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	buf := make([]byte, len(converterRecordPrefix)+len(trimmed))
	copy(buf, converterRecordPrefix)
	copy(buf[len(converterRecordPrefix):], trimmed)
	return buf
}

func accountKey(account string) []byte {
	trimmed := strings.TrimSpace(account)
	buf := make([]byte, len(converterAccountPrefix)+len(trimmed))
	copy(buf, converterAccountPrefix)
	copy(buf[len(converterAccountPrefix):], trimmed)
	return buf
}
