package log

import "log/slog"

func RunID[T ~string](id T) slog.Attr {
	return slog.String("run_id", string(id))
}

func StepID[T ~string](id T) slog.Attr {
	return slog.String("step_id", string(id))
}

func RequestID[T ~string](id T) slog.Attr {
	return slog.String("request_id", string(id))
}

func Stream[T ~string](stream T) slog.Attr {
	return slog.String("stream", string(stream))
}

func Verdict[T ~string](verdict T) slog.Attr {
	return slog.String("verdict", string(verdict))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
