package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
)

// Line はフィードの 1 行分です。ParseError はパース段階で失敗した場合に設定されます。
type Line struct {
	Number     int
	Record     employee.RawRecord
	ParseError error
}

// Registrar は検証済みの社員を登録します。employee.Service が実装します。
type Registrar interface {
	Register(ctx context.Context, e *employee.Employee) (*employee.Employee, error)
}

// Pipeline は検証、登録、集計を 1 パスで行います。
type Pipeline struct {
	registrar Registrar
	logger    *slog.Logger
}

// NewPipeline は Pipeline を生成します。logger が nil の場合は slog.Default を使います。
func NewPipeline(registrar Registrar, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{registrar: registrar, logger: logger}
}

// ImportBatch は各行を順に処理し、行ごとの成否を Summary にまとめます。
// 1 行の失敗でバッチを中断することはありません。
func (p *Pipeline) ImportBatch(ctx context.Context, lines []Line) Summary {
	acc := NewAccumulator()
	logger := p.logger.With("import_id", uuid.NewString(), "lines", len(lines))
	logger.Debug("import started")

	for _, line := range lines {
		if line.ParseError != nil {
			acc.RecordError(line.Number, line.ParseError.Error())
			continue
		}

		emp, err := employee.Validate(line.Record)
		if err != nil {
			acc.RecordError(line.Number, err.Error())
			continue
		}

		if _, err := p.registrar.Register(ctx, emp); err != nil {
			acc.RecordError(line.Number, registerFailure(emp, err))
			if !errors.Is(err, employee.ErrDuplicateEmail) {
				logger.Warn("register failed", "line", line.Number, "error", err)
			}
			continue
		}

		acc.RecordSuccess()
	}

	summary := acc.Summary()
	logger.Info("import finished", "succeeded", summary.SuccessCount, "failed", len(summary.Errors))
	return summary
}

func registerFailure(emp *employee.Employee, err error) string {
	if errors.Is(err, employee.ErrDuplicateEmail) {
		return fmt.Sprintf("duplicate email: %s", emp.Email)
	}
	return err.Error()
}
