package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/util"
)

// Result is the outcome of a run, written for front-ends.
type Result struct {
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Version    string    `json:"version,omitempty"`
	ExecutedAt time.Time `json:"executedAt"`
}

// ResultHandler reads and writes the result file of a run.
type ResultHandler struct {
	resultFile string
}

func NewResultHandler(resultFile string) *ResultHandler {
	return &ResultHandler{resultFile: resultFile}
}

// Write replaces the result file atomically.
func (rh *ResultHandler) Write(ctx context.Context, result Result) error {
	log.Infof("write out installer result to: %s", rh.resultFile)
	if err := util.WriteJson(ctx, rh.resultFile, result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Read returns the result stored in the result file.
func (rh *ResultHandler) Read() (Result, error) {
	var result Result
	if _, err := util.ReadJson(rh.resultFile, &result); err != nil {
		return Result{}, fmt.Errorf("invalid result file %s: %w", rh.resultFile, err)
	}
	return result, nil
}
