package types

// Reply answers every control request. Code is an errcode string when OK
// is false.
type Reply struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func OK(data any) Reply { return Reply{OK: true, Data: data} }

func Fail(code, msg string) Reply { return Reply{Code: code, Error: msg} }
