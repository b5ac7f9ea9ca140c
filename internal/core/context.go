package core

import "context"

type contextKey string

const (
	ctxKeySourceFile  contextKey = "source_file"
	ctxKeySourceSheet contextKey = "source_sheet"
)

// ContextWithSource records where the rows of a run came from, for log attribution.
func ContextWithSource(ctx context.Context, file, sheet string) context.Context {
	ctx = context.WithValue(ctx, ctxKeySourceFile, file)
	return context.WithValue(ctx, ctxKeySourceSheet, sheet)
}

// SourceFromContext returns the file and sheet stored by ContextWithSource.
func SourceFromContext(ctx context.Context) (file, sheet string) {
	file, _ = ctx.Value(ctxKeySourceFile).(string)
	sheet, _ = ctx.Value(ctxKeySourceSheet).(string)
	return file, sheet
}

// sourceFields returns slog attributes for the run's source, if any.
func sourceFields(ctx context.Context) []any {
	file, sheet := SourceFromContext(ctx)
	var fields []any
	if file != "" {
		fields = append(fields, "file", file)
	}
	if sheet != "" {
		fields = append(fields, "sheet", sheet)
	}
	return fields
}
