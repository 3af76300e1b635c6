// Package resource holds the budgets shared by every array of one Manager:
// resident page bytes, backing-file throughput and flush parallelism.
//
//	┌──────────────────────────────────────────────┐
//	│                    Budget                    │
//	├─────────────────────┬────────────────────────┤
//	│  Page bytes         │  Backing-file IO       │
//	│  (semaphore,        │  (token bucket,        │
//	│   fail-fast)        │   blocking)            │
//	├─────────────────────┼────────────────────────┤
//	│  Reserve / Release  │  Throttle              │
//	│  Resident / Peak    │                        │
//	└─────────────────────┴────────────────────────┘
//
// Reserve never blocks. The pager answers a refusal by evicting a page and
// reserving again.
//
// A nil *Budget is unlimited.
package resource
