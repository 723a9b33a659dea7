package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
)

// Kind is the kind of a notice
type Kind string

const (
	// KindToast is a transient message shown to the user
	KindToast Kind = "toast"
	// KindTableChanged tells clients a table snapshot changed
	KindTableChanged Kind = "table_changed"
)

// Level is the severity of a toast
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a user-facing notification
type Notice struct {
	Kind    Kind             `json:"kind"`
	Level   Level            `json:"level,omitempty"`
	Table   domain.TableType `json:"table,omitempty"`
	Message string           `json:"message,omitempty"`
	At      time.Time        `json:"at"`
}

// Notifier delivers notices to the user
//
//go:generate mockgen -source=notify.go -destination=../mocks/notifier.go -package=mocks -mock_names=Notifier=MockNotifier
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// Toast builds a toast notice
func Toast(level Level, table domain.TableType, message string) Notice {
	return Notice{Kind: KindToast, Level: level, Table: table, Message: message, At: time.Now().UTC()}
}

// TableChanged builds a table changed notice
func TableChanged(table domain.TableType) Notice {
	return Notice{Kind: KindTableChanged, Table: table, At: time.Now().UTC()}
}

// LogNotifier writes notices to the logger
type LogNotifier struct{}

// NewLogNotifier creates a notifier logging through zap
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Notify(ctx context.Context, notice Notice) {
	if notice.Kind != KindToast {
		return
	}

	fields := []zap.Field{
		zap.String("level", string(notice.Level)),
		zap.String("table_type", string(notice.Table)),
	}
	if notice.Level == LevelError {
		logger.WarnCtx(ctx, notice.Message, fields...)
		return
	}
	logger.InfoCtx(ctx, notice.Message, fields...)
}

// Multi fans a notice out to several notifiers
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, notice Notice) {
	for _, n := range m {
		n.Notify(ctx, notice)
	}
}

// Discard drops every notice
type Discard struct{}

func (Discard) Notify(context.Context, Notice) {}
