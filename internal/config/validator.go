package config

import (
	"fmt"
	"strings"
)

// ValidationError 配置校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置错误 [%s]: %s", e.Field, e.Message)
}

// ValidationErrors 多个配置校验错误
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors 是否有错误
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate 校验配置
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Selection.ScoreMargin < 0 {
		errs = append(errs, ValidationError{"Selection.ScoreMargin", "不能为负"})
	}
	if c.Selection.ClosePeersDistance < 0 {
		errs = append(errs, ValidationError{"Selection.ClosePeersDistance", "不能为负"})
	}
	if c.Selection.FullnessCutoff <= 0 || c.Selection.FullnessCutoff > 1 {
		errs = append(errs, ValidationError{"Selection.FullnessCutoff", "必须在 (0,1] 区间"})
	}
	if c.Selection.LatencySampleCacheSize <= 0 {
		errs = append(errs, ValidationError{"Selection.LatencySampleCacheSize", "必须为正"})
	}
	if c.Comms.HeartbeatInterval <= 0 {
		errs = append(errs, ValidationError{"Comms.HeartbeatInterval", "必须为正"})
	}
	if c.Transport.Subprotocol == "" {
		errs = append(errs, ValidationError{"Transport.Subprotocol", "不能为空"})
	}
	if c.Transport.MaxFrameSize == 0 {
		errs = append(errs, ValidationError{"Transport.MaxFrameSize", "必须为正"})
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
