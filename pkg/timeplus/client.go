package timeplus

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timeplus-io/proton-go-driver/v2"
	"github.com/timeplus-io/proton-go-driver/v2/lib/driver"

	"github.com/timeplus-io/soc-dashboard/pkg/config"
)

const (
	defaultNativePort = "8464"
	maxRetries        = 3
)

// Column represents a column definition
type Column struct {
	Name     string
	Type     string
	Nullable bool // Whether the column can be NULL
}

// Client is a wrapper around the Timeplus Proton Go driver connection.
// It is shared by every feed; mu guards conn so a reconnect never swaps or
// closes it under an in-flight call.
type Client struct {
	mu        sync.RWMutex
	conn      driver.Conn
	open      func(*proton.Options) (driver.Conn, error)
	workspace string
	address   string
	opts      *proton.Options
}

// NewClient connects to Timeplus and verifies the connection with a ping
func NewClient(cfg *config.TimeplusConfig) (*Client, error) {
	address := connectionAddress(cfg.Address)
	logrus.Infof("Connecting to Timeplus native protocol at %s (workspace: %s)", address, cfg.Workspace)

	opts := &proton.Options{
		Addr: []string{address},
		Auth: proton.Auth{
			Database: cfg.Workspace,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		Compression: &proton.Compression{
			Method: proton.CompressionLZ4,
		},
	}

	conn, err := proton.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to Timeplus: %w", err)
	}

	var pingErr error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = conn.Ping(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		logrus.Warnf("Failed to ping Timeplus (attempt %d/%d): %v", i+1, maxRetries, pingErr)
		time.Sleep(2 * time.Second)
	}
	if pingErr != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping Timeplus after multiple attempts: %w", pingErr)
	}

	logrus.Info("Successfully connected to Timeplus")
	return &Client{
		conn:      conn,
		open:      openConn,
		workspace: cfg.Workspace,
		address:   address,
		opts:      opts,
	}, nil
}

func openConn(opts *proton.Options) (driver.Conn, error) {
	return proton.Open(opts)
}

// connectionAddress strips any scheme and adds the default native port
func connectionAddress(address string) string {
	address = strings.TrimPrefix(address, "http://")
	address = strings.TrimPrefix(address, "https://")
	if address == "" {
		address = "localhost"
	}
	if !strings.Contains(address, ":") {
		address += ":" + defaultNativePort
	}
	return address
}

// Close releases the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// exec runs a statement on the current connection and returns the
// connection it used, so a failed caller can ask for that one to be replaced
func (c *Client) exec(ctx context.Context, query string) (driver.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn, c.conn.Exec(ctx, query)
}

// CreateStream creates a stream with the given schema if it does not exist
func (c *Client) CreateStream(ctx context.Context, name string, schema []Column) error {
	query := fmt.Sprintf("CREATE STREAM IF NOT EXISTS `%s` %s", name, schemaDefinition(schema))
	if _, err := c.exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create stream '%s': %w", name, err)
	}
	return nil
}

func schemaDefinition(schema []Column) string {
	if len(schema) == 0 {
		return ""
	}
	fields := make([]string, len(schema))
	for i, col := range schema {
		if col.Nullable {
			fields[i] = fmt.Sprintf("%s %s NULL", col.Name, col.Type)
		} else {
			fields[i] = fmt.Sprintf("%s %s", col.Name, col.Type)
		}
	}
	return "(" + strings.Join(fields, ", ") + ")"
}

// StreamExists checks if a stream exists
func (c *Client) StreamExists(ctx context.Context, name string) (bool, error) {
	escapedName := strings.ReplaceAll(name, "'", "''")

	c.mu.RLock()
	defer c.mu.RUnlock()
	rows, err := c.conn.Query(ctx, fmt.Sprintf("SHOW STREAMS LIKE '%s'", escapedName))
	if err != nil {
		return false, fmt.Errorf("failed to execute SHOW STREAMS: %w", err)
	}
	defer rows.Close()

	exists := rows.Next()
	if rows.Err() != nil {
		return false, fmt.Errorf("error checking rows from SHOW STREAMS: %w", rows.Err())
	}
	return exists, nil
}

// DeleteStream drops a stream if it exists
func (c *Client) DeleteStream(ctx context.Context, name string) error {
	exists, err := c.StreamExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if _, err := c.exec(ctx, fmt.Sprintf("DROP STREAM `%s`", name)); err != nil {
		return fmt.Errorf("failed to delete stream '%s': %w", name, err)
	}
	return nil
}

// ExecuteQuery executes a historical query and returns the rows as maps
func (c *Client) ExecuteQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	var lastErr error
	var failed driver.Conn
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			logrus.Warnf("Retrying query (attempt %d/%d) after error: %v", attempt+1, maxRetries, lastErr)
			if strings.Contains(lastErr.Error(), "EOF") {
				if err := c.reconnect(ctx, failed); err != nil {
					logrus.Errorf("Failed to reconnect: %v", err)
				}
			}
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		result, conn, err := c.query(ctx, query)
		if err == nil {
			return result, nil
		}
		lastErr = err
		failed = conn
	}
	return nil, fmt.Errorf("failed to execute query after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) query(ctx context.Context, query string) ([]map[string]interface{}, driver.Conn, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	c.mu.RLock()
	defer c.mu.RUnlock()
	conn := c.conn
	result, err := scanRows(queryCtx, conn, query)
	return result, conn, err
}

func scanRows(ctx context.Context, conn driver.Conn, query string) ([]map[string]interface{}, error) {
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columnNames := rows.Columns()
	columnTypes := rows.ColumnTypes()

	result := make([]map[string]interface{}, 0)
	for rows.Next() {
		scanArgs := make([]interface{}, len(columnNames))
		for i, ct := range columnTypes {
			scanArgs[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columnNames))
		for i, name := range columnNames {
			row[name] = reflect.ValueOf(scanArgs[i]).Elem().Interface()
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return result, nil
}

// reconnect replaces failed, the connection the server dropped. It is a
// no-op when another caller has already replaced it.
func (c *Client) reconnect(ctx context.Context, failed driver.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != failed {
		return nil
	}
	logrus.Info("Attempting to reconnect to Timeplus...")

	conn, err := c.open(c.opts)
	if err != nil {
		return fmt.Errorf("failed to reopen connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		conn.Close()
		return fmt.Errorf("connection established but ping failed: %w", err)
	}

	if err := c.conn.Close(); err != nil {
		logrus.Warnf("Failed to close dropped connection: %v", err)
	}
	c.conn = conn
	logrus.Info("Successfully reconnected to Timeplus")
	return nil
}

// InsertIntoStream inserts a single row
func (c *Client) InsertIntoStream(ctx context.Context, streamName string, columns []string, values []interface{}) error {
	query := insertStatement(streamName, columns, values)

	var lastErr error
	var failed driver.Conn
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			logrus.Warnf("Retrying insertion to stream '%s' (attempt %d/%d) after error: %v",
				streamName, attempt+1, maxRetries, lastErr)
			if strings.Contains(lastErr.Error(), "EOF") {
				if err := c.reconnect(ctx, failed); err != nil {
					logrus.Errorf("Failed to reconnect: %v", err)
				}
			}
		}

		conn, err := c.exec(ctx, query)
		if err == nil {
			return nil
		}
		lastErr = err
		failed = conn

		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("failed to insert into stream %s: %w", streamName, lastErr)
}

func insertStatement(streamName string, columns []string, values []interface{}) string {
	formatted := make([]string, len(values))
	for i, val := range values {
		formatted[i] = formatValue(val)
	}
	return fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		streamName, strings.Join(columns, ", "), strings.Join(formatted, ", "))
}

// formatValue renders a Go value as a SQL literal
func formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case []string:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = quote(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case time.Time:
		return quote(v.UTC().Format("2006-01-02 15:04:05.000"))
	case bool:
		return fmt.Sprintf("%t", v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%f", v)
	case fmt.Stringer:
		return quote(v.String())
	default:
		return quote(fmt.Sprintf("%v", v))
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
