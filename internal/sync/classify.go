package sync

import "strings"

// PipelineKind tags which CRM pipeline a work-order status belongs to.
type PipelineKind int

const (
	PipelineUnknown PipelineKind = iota
	PipelineInstallation
	PipelineService
)

// CRM pipeline ids.
const (
	installationPipelineID = "0"
	servicePipelineID      = "160077657"
)

// Classification is the resolved pipeline/stage pair for a work-order status.
type Classification struct {
	Kind       PipelineKind
	PipelineID string
	StageID    int64
}

// Known reports whether the status resolved to a pipeline stage.
func (c Classification) Known() bool {
	return c.Kind != PipelineUnknown
}

// Stage tables mapping work-order status strings to CRM pipeline stage ids.
// Multiple synonym spellings map to the same stage. Lookup is
// case-insensitive; the tables are folded once at init.
var installationStages = map[string]int64{
	"Rejection":                                 2,
	"closed - rejection - duplication":          2,
	"closed - rejected":                         2,
	"Fiber Ready":                               3,
	"Active Refusal":                            4,
	"SALES - Active Refusal":                    4,
	"Passive Refusal":                           258799956,
	"Pre Order":                                 258799957,
	"New Order":                                 258799958,
	"NID Relocate":                              258799960,
	"Civil Drop":                                258799961,
	"Optical Drop":                              258799962,
	"Soft Blockage":                             258799963,
	"Hard Blockage":                             258799964,
	"NCCH":                                      258799965,
	"Full Handover":                             258799966,
	"NID Installation Complete":                 258799967,
	"ISP Scheduled":                             258799968,
	"ISP Complete":                              258799969,
	"Pending Auto Configuration":                258799970,
	"pending configuration":                     258799970,
	"Auto Configuration Failed":                 258799971,
	"Activation Complete":                       258799972,
	"Not Actionable":                            258799973,
	"Installation":                              258799974,
	"Provisioning":                              267644843,
	"provisioning failed":                       267644843,
	"Provisioned":                               267644843,
	"Other":                                     267644850,
	"NID Installation":                          267644851,
	"closed - nid - installation complete":      267644851,
	"Service Activation (without installation)": 267644856,
	"L3 Configuration":                          267644930,
	"configured":                                267644930,
	"Relocation":                                267644931,
	"Abandoned":                                 954945896,
}

var serviceStages = map[string]int64{
	"Cancellation":            267644932,
	"Cancellation in Progress": 267644932,
	"Cancellation Pending":     267644932,
	"Cancelled":                267644932,
	"Service change":           267644933,
	"Change Service":           954945906,
	"Service Change Approved":  954945906,
	"Fiber Break":              267644934,
	"Service Down":             267644935,
	"Light Levels":             267647763,
	"Power Down":               267647764,
	"Maintenance":              267647765,
	"Swapout Device":           267647766,
	"Recover Device":           267647767,
	"Deprovisioning":           267647768,
	"Speed Test":               267647769,
	"Change Service Provider":  267647770,
	"Fault":                    267647771,
	"rejected":                 955026021,
	"deprovisioned":            954733986,
}

var (
	installationStagesFolded = foldKeys(installationStages)
	serviceStagesFolded      = foldKeys(serviceStages)
)

func foldKeys(stages map[string]int64) map[string]int64 {
	folded := make(map[string]int64, len(stages))
	for k, v := range stages {
		folded[strings.ToLower(k)] = v
	}
	return folded
}

// ClassifyStatus resolves a work-order status to its CRM pipeline and stage.
// The installation table is consulted first, then the service table. Unknown
// statuses return a zero Classification; the caller treats that as a
// classification failure, not a default.
func ClassifyStatus(status string) Classification {
	key := strings.ToLower(strings.TrimSpace(status))
	if stage, ok := installationStagesFolded[key]; ok {
		return Classification{Kind: PipelineInstallation, PipelineID: installationPipelineID, StageID: stage}
	}
	if stage, ok := serviceStagesFolded[key]; ok {
		return Classification{Kind: PipelineService, PipelineID: servicePipelineID, StageID: stage}
	}
	return Classification{}
}
