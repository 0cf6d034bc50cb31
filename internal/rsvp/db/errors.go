package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/lib/pq"
)

var (
	ErrTableMissing = errors.New("rsvp table missing")
	ErrUnreachable  = errors.New("database unreachable")
	ErrNotFound     = errors.New("rsvp response not found")
)

const pqUndefinedTable = "42P01"

// classify tags a driver error with ErrTableMissing or ErrUnreachable when it
// can tell which one it is. Other errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isTableMissing(err) {
		return fmt.Errorf("%w: %v", ErrTableMissing, err)
	}
	if isUnreachable(err) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return err
}

func isTableMissing(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUndefinedTable
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}

func isUnreachable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception, 57P0x: server shutting down
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P0")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "no such host", "i/o timeout", "connection reset", "broken pipe", "database is closed", "unable to open database"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
