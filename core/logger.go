package core

type (
	// Logger reports messages with optional extra args: error, map[string]interface{}, RequestInfo.
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// RequestInfo identifies the inbound request a log entry belongs to.
	RequestInfo struct {
		ID     string
		Method string
		Path   string
	}
)
