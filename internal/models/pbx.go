package models

import "time"

// QueueName binds a PBX device id to a queue name.
type QueueName struct {
	Device string `db:"device" json:"device"`
	Queue  string `db:"queue" json:"queue"`
}

type ExtensionStatus string

const (
	ExtensionOnline  ExtensionStatus = "online"
	ExtensionOffline ExtensionStatus = "offline"
)

type Extension struct {
	Extension string          `db:"extension" json:"extension"`
	Name      string          `db:"name" json:"name"`
	Status    ExtensionStatus `json:"status"`
}

// CallRecord is the projection of asteriskcdrdb.cdr the API exposes.
type CallRecord struct {
	Src         string    `db:"src" json:"src"`
	Dst         string    `db:"dst" json:"dst"`
	CallDate    time.Time `db:"calldate" json:"calldate"`
	Duration    int       `db:"duration" json:"duration"`
	Disposition string    `db:"disposition" json:"disposition"`
}

type CallPage struct {
	Items []CallRecord `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
	Pages int64        `json:"pages"`
}

type Trunk struct {
	Name      string `db:"name" json:"name"`
	Tech      string `db:"tech" json:"tech"`
	ChannelID string `db:"channelid" json:"channelid"`
}

type DashboardStats struct {
	CallsToday       int64   `json:"calls_today"`
	CallsThisMonth   int64   `json:"calls_this_month"`
	AvgDuration      float64 `json:"avg_duration"`
	AnswerRate       float64 `json:"answer_rate"`
	ActiveExtensions int64   `json:"active_extensions"`
}

type CallStatusBreakdown struct {
	Answered int64 `json:"answered"`
	NoAnswer int64 `json:"no_answer"`
	Busy     int64 `json:"busy"`
	Failed   int64 `json:"failed"`
}

type DailyTrend struct {
	Date     string `json:"date"`
	Total    int64  `json:"total"`
	Answered int64  `json:"answered"`
}

// PartyCount is a number (caller or callee) with its call count.
type PartyCount struct {
	Number string `json:"number"`
	Calls  int64  `json:"calls"`
}

type AdvancedDashboard struct {
	General                 DashboardStats      `json:"general"`
	CallStatus              CallStatusBreakdown `json:"call_status"`
	DailyTrends             []DailyTrend        `json:"daily_trends"`
	TopAgents               []PartyCount        `json:"top_agents"`
	DestinationDistribution []PartyCount        `json:"destination_distribution"`
}

type IncomingRoute struct {
	Extension   string `db:"extension" json:"extension"`
	CIDNum      string `db:"cidnum" json:"cidnum"`
	Description string `db:"description" json:"description"`
	Destination string `db:"destination" json:"destination"`
}

type IVR struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}
