package report

import (
	"bytes"
	"context"
	"net/mail"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/config"
)

// ErrInvalidRecipient is returned by NewDelivery for an unparsable address.
var ErrInvalidRecipient = eris.New("report: invalid recipient address")

// Delivery is a rendered report addressed to a recipient.
type Delivery struct {
	To       string
	From     string
	Subject  string
	Report   *Report
	Markdown string
	HTML     string
}

// NewDelivery renders r for to. from may be empty.
func NewDelivery(r *Report, to, from string) (Delivery, error) {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return Delivery{}, eris.Wrapf(ErrInvalidRecipient, "report: recipient %q", to)
	}
	html, err := EmailHTML(r)
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{
		To:       addr.Address,
		From:     from,
		Subject:  "Your " + Title,
		Report:   r,
		Markdown: Markdown(r),
		HTML:     html,
	}, nil
}

// Dispatcher sends a rendered report. Email delivery lives outside this
// repository and plugs in here.
type Dispatcher interface {
	Dispatch(ctx context.Context, d Delivery) error
}

// LogDispatcher logs deliveries instead of sending them.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, d Delivery) error {
	zap.L().Info("report: dispatch",
		zap.String("report_id", d.Report.ID),
		zap.String("to", d.To),
		zap.String("subject", d.Subject),
		zap.Int("html_bytes", len(d.HTML)),
	)
	return nil
}

// FileDispatcher writes each delivery to Dir as <id>.md, <id>.html and
// <id>.xlsx.
type FileDispatcher struct {
	Dir string
}

func (f FileDispatcher) Dispatch(_ context.Context, d Delivery) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return eris.Wrapf(err, "report: create %s", f.Dir)
	}

	var book bytes.Buffer
	if err := WriteXLSX(&book, d.Report); err != nil {
		return err
	}

	files := map[string][]byte{
		".md":   []byte(d.Markdown),
		".html": []byte(d.HTML),
		".xlsx": book.Bytes(),
	}
	for ext, data := range files {
		path := filepath.Join(f.Dir, d.Report.ID+ext)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrapf(err, "report: write %s", path)
		}
	}
	zap.L().Info("report: written", zap.String("report_id", d.Report.ID), zap.String("dir", f.Dir))
	return nil
}

// Multi dispatches to each Dispatcher in order and stops at the first
// error.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, d Delivery) error {
	for _, dsp := range m {
		if err := dsp.Dispatch(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// DispatcherFromConfig logs every delivery and also writes it to
// OutputDir when one is set.
func DispatcherFromConfig(cfg config.ReportConfig) Dispatcher {
	if cfg.OutputDir == "" {
		return LogDispatcher{}
	}
	return Multi{LogDispatcher{}, FileDispatcher{Dir: cfg.OutputDir}}
}
