package registry

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/pingcap-inc/file2bq/pkg/coreinterfaces"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap-inc/file2bq/pkg/metrics"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// TableHandle addresses one table of the warehouse.
type TableHandle struct {
	ProjectID string
	DatasetID string
	TableID   string
}

func (h TableHandle) String() string {
	return fmt.Sprintf("%s.%s.%s", h.ProjectID, h.DatasetID, h.TableID)
}

// Client checks, creates and deletes tables of one dataset. Every call is a
// round trip to the warehouse; nothing is cached.
//
// Create does not check for existence. Callers run Exists first and accept
// that another creator may win between the two calls; the warehouse then
// rejects the second create.
type Client struct {
	wh      coreinterfaces.Warehouse
	metrics *metrics.Metrics
}

// NewClient returns a registry client. m may be nil.
func NewClient(wh coreinterfaces.Warehouse, m *metrics.Metrics) *Client {
	return &Client{wh: wh, metrics: m}
}

func (c *Client) Handle(table string) TableHandle {
	return TableHandle{ProjectID: c.wh.ProjectID(), DatasetID: c.wh.DatasetID(), TableID: table}
}

// Exists reports whether the table exists. Failures other than not-found
// are returned as ErrRegistry.
func (c *Client) Exists(ctx context.Context, table string) (bool, error) {
	handle := c.Handle(table)
	exists, err := c.wh.TableExists(ctx, table)
	if err != nil {
		log.Error("Failed to look up table", zap.Stringer("table", handle), zap.Error(err))
		return false, errno.ErrRegistry.GenWithStackByArgs("look up", handle.String(), err.Error())
	}
	if exists {
		log.Info("Table already exists", zap.Stringer("table", handle))
	} else {
		log.Info("Table does not exist", zap.Stringer("table", handle))
	}
	return exists, nil
}

// Create creates the table with schema. A nil schema creates nothing: the
// table is created by the following load job from the inferred schema.
func (c *Client) Create(ctx context.Context, table string, schema bigquery.Schema) (TableHandle, error) {
	handle := c.Handle(table)
	if schema == nil {
		log.Info("Table will be created by load job with inferred schema", zap.Stringer("table", handle))
		return handle, nil
	}
	if err := c.wh.CreateTable(ctx, table, schema); err != nil {
		log.Error("Failed to create table", zap.Stringer("table", handle), zap.Error(err))
		return handle, errno.ErrRegistry.GenWithStackByArgs("create", handle.String(), err.Error())
	}
	c.metrics.AddTableCreated(table)
	log.Info("Table created", zap.Stringer("table", handle), zap.Int("columns", len(schema)))
	return handle, nil
}

// Delete deletes the table. Deleting a missing table succeeds.
func (c *Client) Delete(ctx context.Context, table string) error {
	handle := c.Handle(table)
	err := c.wh.DeleteTable(ctx, table)
	switch {
	case err == nil:
		log.Info("Table deleted", zap.Stringer("table", handle))
		return nil
	case errno.IsTableNotFound(err):
		log.Info("Table already absent", zap.Stringer("table", handle))
		return nil
	default:
		log.Error("Failed to delete table", zap.Stringer("table", handle), zap.Error(err))
		return errors.Trace(errno.ErrRegistry.GenWithStackByArgs("delete", handle.String(), err.Error()))
	}
}
