package middleware

import (
	"net/http"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/sirupsen/logrus"
)

// Logger logs every request through logrus.
func Logger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return logger.Logger("router", log)
}
