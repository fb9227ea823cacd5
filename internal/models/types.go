package models

// Stream mode constants
const (
	StreamModeLive = "live"
	StreamModeVOD  = "vod"
)
