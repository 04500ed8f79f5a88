package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/farm-yield-sim/internal/config"
	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// CellReport is the message value published for each simulated cell.
type CellReport struct {
	RunID       string    `json:"run_id"`
	Year        int       `json:"year"`
	SimulatedAt time.Time `json:"simulated_at"`
	domain.FarmCell
}

// Writer publishes simulation runs to a Kafka topic, one message per cell.
// It implements simulation.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Publish writes every cell of run in a single WriteMessages call. Cells are
// keyed by run and position, so a cell always lands on the same partition.
func (w *Writer) Publish(ctx context.Context, run domain.Run) error {
	msgs, err := runMessages(run)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d cell reports: %w", len(msgs), err)
	}
	w.logger.Debug("cell reports written", "run_id", run.ID, "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func runMessages(run domain.Run) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, run.Grid.Rows*run.Grid.Cols)
	for _, row := range run.Grid.Cells {
		for _, cell := range row {
			msg, err := serializeToMessage(run, cell)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// serializeToMessage marshals one cell of a run into a Kafka message.
func serializeToMessage(run domain.Run, cell domain.FarmCell) (kafkago.Message, error) {
	report := CellReport{
		RunID:       run.ID,
		Year:        run.Year,
		SimulatedAt: run.StartedAt,
		FarmCell:    cell,
	}
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize cell (%d,%d): %w", cell.Row, cell.Col, err)
	}
	return kafkago.Message{
		Key:   []byte(cellKey(run.ID, cell.Row, cell.Col)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(run.ID)},
			{Key: "crop", Value: []byte(cell.Crop.String())},
			{Key: "simulated_at", Value: []byte(run.StartedAt.Format(time.RFC3339))},
		},
	}, nil
}

func cellKey(runID string, row, col int) string {
	return runID + "/" + strconv.Itoa(row) + "/" + strconv.Itoa(col)
}
