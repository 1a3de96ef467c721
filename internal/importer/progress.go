package importer

import (
	"context"
	"errors"
	"time"

	"kpiboard/internal/model"
)

// ErrorData error 事件的数据；Err 保留原始错误供进程内调用方判断类型
type ErrorData struct {
	Error   string             `json:"error"`
	Kind    string             `json:"kind,omitempty"`
	Sheet   string             `json:"sheet,omitempty"`
	Missing []model.ColumnRole `json:"missing,omitempty"`
	Err     error              `json:"-"`
}

// NewErrorData 从错误构造可序列化的事件数据
func NewErrorData(err error) ErrorData {
	data := ErrorData{Error: err.Error(), Err: err}
	var mc *model.MissingColumnError
	switch {
	case errors.As(err, &mc):
		data.Kind = "missing_column"
		data.Sheet = mc.Sheet
		data.Missing = mc.Missing
	case errors.Is(err, model.ErrUnparseableFile):
		data.Kind = "unparseable_file"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		data.Kind = "cancelled"
	}
	return data
}

// Import 异步执行导入，返回进度通道；最后一个事件为 done（Data 为 *model.WorkbookResult）或 error（Data 为 ErrorData）
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)

		userHook := opts.OnProgress
		opts.OnProgress = func(evt ProgressEvent) {
			if userHook != nil {
				userHook(evt)
			}
			c.sendProgress(progressChan, evt)
		}

		result, err := c.Ingest(ctx, opts)
		final := ProgressEvent{Type: "done", Message: "Hoàn tất", Data: result, Timestamp: time.Now()}
		if err != nil {
			final = ProgressEvent{Type: "error", Message: err.Error(), Data: NewErrorData(err), Timestamp: time.Now()}
		}

		// 终态事件不可丢弃
		select {
		case progressChan <- final:
		case <-ctx.Done():
		}
	}()

	return progressChan
}

// sendProgress 非阻塞发送；消费方过慢时丢弃中间事件
func (c *Coordinator) sendProgress(ch chan<- ProgressEvent, evt ProgressEvent) {
	select {
	case ch <- evt:
	default:
	}
}
