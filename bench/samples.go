package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

const timestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"timestamp", "qps"}

// Sample is the number of queries completed in one second of a run.
type Sample struct {
	Timestamp string  `json:"timestamp"`
	QPS       float64 `json:"qps"`
}

// ReadSamples loads a timestamp,qps CSV. A missing file has no samples.
func ReadSamples(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open results: %w", err)
	}
	defer file.Close()

	return DecodeSamples(file)
}

func DecodeSamples(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	timestampColumn, qpsColumn := -1, -1
	for i, name := range records[0] {
		switch name {
		case "timestamp":
			timestampColumn = i
		case "qps":
			qpsColumn = i
		}
	}
	if timestampColumn < 0 || qpsColumn < 0 {
		return nil, fmt.Errorf("results need timestamp and qps columns, got %v", records[0])
	}

	samples := make([]Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		qps, err := strconv.ParseFloat(record[qpsColumn], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid qps on line %d: %w", line+2, err)
		}
		samples = append(samples, Sample{Timestamp: record[timestampColumn], QPS: qps})
	}

	return samples, nil
}

func WriteSamples(path string, samples []Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results: %w", err)
	}

	if err := EncodeSamples(file, samples); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func EncodeSamples(w io.Writer, samples []Sample) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, sample := range samples {
		if err := writer.Write([]string{sample.Timestamp, strconv.FormatFloat(sample.QPS, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Summary is what the dashboard shows above the sample table.
type Summary struct {
	Peak float64
	Mean float64
}

func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	var summary Summary
	var total float64
	for _, sample := range samples {
		total += sample.QPS
		summary.Peak = max(summary.Peak, sample.QPS)
	}
	summary.Mean = total / float64(len(samples))
	return summary
}
