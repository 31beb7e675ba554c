package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// NewRelicLogFormatter forwards every log entry to New Relic, including all
// logrus fields, and decorates the locally formatted line with linking
// metadata. Entries logged with a context carrying a transaction are attached
// to that transaction.
//
// Based off of: https://github.com/newrelic/go-agent/blob/f1942e10f0819e2c854d5d7289eb0dc1c52a00af/v3/integrations/logcontext-v2/nrlogrus/formatter.go
type NewRelicLogFormatter struct {
	app  *newrelic.Application
	base logrus.Formatter
}

func NewNewRelicLogFormatter(app *newrelic.Application, base logrus.Formatter) *NewRelicLogFormatter {
	return &NewRelicLogFormatter{
		app:  app,
		base: base,
	}
}

func (f *NewRelicLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	line, err := f.base.Format(e)
	if err != nil {
		return nil, err
	}
	b := bytes.NewBuffer(bytes.TrimRight(line, "\n"))

	data := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  forwardedMessage(e),
	}

	var txn *newrelic.Transaction
	if e.Context != nil {
		txn = newrelic.FromContext(e.Context)
	}

	if txn != nil {
		txn.RecordLog(data)
		err = newrelic.EnrichLog(b, newrelic.FromTxn(txn))
	} else {
		f.app.RecordLog(data)
		err = newrelic.EnrichLog(b, newrelic.FromApp(f.app))
	}
	if err != nil {
		return nil, err
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// forwardedMessage folds the entry fields into the message, since New Relic
// log records only carry a message and a severity.
func forwardedMessage(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	errString := "<nil>"
	fields := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if err, ok := v.(error); ok && k == logrus.ErrorKey {
			errString = fmt.Sprintf("%q", err.Error())
			continue
		}
		fields[k] = v
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return e.Message
	}
	return fmt.Sprintf("message=%q, error=%s, data=%s", e.Message, errString, encoded)
}
