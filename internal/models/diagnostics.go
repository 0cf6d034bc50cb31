package models

import "time"

type ConfigPresence struct {
	HasDatabaseURL      bool `json:"hasDatabaseUrl"`
	HasDatabaseHost     bool `json:"hasDatabaseHost"`
	HasDatabaseName     bool `json:"hasDatabaseName"`
	HasDatabaseUser     bool `json:"hasDatabaseUser"`
	HasDatabasePassword bool `json:"hasDatabasePassword"`
	HasRedisAddr        bool `json:"hasRedisAddr"`
}

type Diagnostics struct {
	Success     bool           `json:"success"`
	Connection  string         `json:"connection"`
	TableExists bool           `json:"tableExists"`
	RecordCount *int           `json:"recordCount,omitempty"`
	Config      ConfigPresence `json:"config"`
	Timestamp   time.Time      `json:"timestamp"`
}
