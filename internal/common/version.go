package common

// Overridden at link time:
//
//	go build -ldflags "-X tarediiran-industries.com/transit-dashboard/internal/common.Version=1.2.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
)
