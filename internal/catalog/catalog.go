// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package catalog holds the fixed Azure Resource Graph queries the export
// pipeline runs. Query text is static; the only runtime parameter is the row
// cap, which is passed to the query call and never interpolated into the text.
package catalog

// RowCap is the maximum record count requested per query. Resource Graph
// returns at most 1000 records per request; a result set of exactly this
// length is known-truncated.
const RowCap = 1000

// Kind identifies one of the fixed query definitions.
type Kind int

const (
	SecureScores Kind = iota
	SecureScoreControls
	SecurityAssessments
	SecurityRecommendations
	ComplianceStandards
	ComplianceControls
	ComplianceAssessments
)

// Definition is one query the pipeline can run.
type Definition struct {
	Kind     Kind
	Label    string   // human label for logs and errors
	BaseName string   // output file base name
	Fields   []string // projected fields, for reference and tests
	query    string
}

// Query returns the query text. The row cap is not part of the text; pass it
// to the execution call.
func (d Definition) Query() string {
	return d.query
}

const secureScoresQuery = `securityresources
| where type == "microsoft.security/securescores"
| extend scoreCurrent = toint(properties.score.current),
	scoreMax = toint(properties.score.max),
	scorePercentage = round(todouble(properties.score.percentage) * 100, 2),
	weight = tolong(properties.weight)
| project subscriptionId, tenantId, name, scoreCurrent, scoreMax, scorePercentage, weight`

const secureScoreControlsQuery = `securityresources
| where type == "microsoft.security/securescores/securescorecontrols"
| extend controlName = tostring(properties.displayName),
	scoreCurrent = toint(properties.score.current),
	scoreMax = toint(properties.score.max),
	healthyCount = toint(properties.healthyResourceCount),
	unhealthyCount = toint(properties.unhealthyResourceCount),
	notApplicableCount = toint(properties.notApplicableResourceCount),
	weight = tolong(properties.weight)
| project subscriptionId, controlName, scoreCurrent, scoreMax, healthyCount, unhealthyCount, notApplicableCount, weight`

const securityAssessmentsQuery = `securityresources
| where type == "microsoft.security/assessments"
| extend assessmentName = tostring(properties.displayName),
	severity = tostring(properties.metadata.severity),
	statusCode = tostring(properties.status.code),
	statusCause = tostring(properties.status.cause),
	resourceId = tostring(properties.resourceDetails.Id)
| project subscriptionId, assessmentName, severity, statusCode, statusCause, resourceId, id`

const securityRecommendationsQuery = `securityresources
| where type == "microsoft.security/assessments"
| where properties.status.code == "Unhealthy"
| extend recommendationName = tostring(properties.displayName),
	severity = tostring(properties.metadata.severity),
	remediation = tostring(properties.metadata.remediationDescription),
	resourceId = tostring(properties.resourceDetails.Id),
	resourceType = tostring(properties.resourceDetails.ResourceType)
| project subscriptionId, recommendationName, severity, remediation, resourceId, resourceType, id`

const complianceStandardsQuery = `securityresources
| where type == "microsoft.security/regulatorycompliancestandards"
| extend standardName = name,
	state = tostring(properties.state),
	passedControls = toint(properties.passedControls),
	failedControls = toint(properties.failedControls),
	skippedControls = toint(properties.skippedControls)
| project subscriptionId, standardName, state, passedControls, failedControls, skippedControls`

const complianceControlsQuery = `securityresources
| where type == "microsoft.security/regulatorycompliancestandards/regulatorycompliancecontrols"
| extend standardName = extract("regulatoryComplianceStandards/([^/]+)/", 1, id),
	controlName = name,
	controlDescription = tostring(properties.description),
	state = tostring(properties.state),
	passedAssessments = toint(properties.passedAssessments),
	failedAssessments = toint(properties.failedAssessments),
	skippedAssessments = toint(properties.skippedAssessments)
| project subscriptionId, standardName, controlName, controlDescription, state, passedAssessments, failedAssessments, skippedAssessments`

const complianceAssessmentsQuery = `securityresources
| where type == "microsoft.security/regulatorycompliancestandards/regulatorycompliancecontrols/regulatorycomplianceassessments"
| extend standardName = extract("regulatoryComplianceStandards/([^/]+)/", 1, id),
	controlName = extract("regulatoryComplianceControls/([^/]+)/", 1, id),
	assessmentName = name,
	assessmentDescription = tostring(properties.description),
	state = tostring(properties.state),
	passedResources = toint(properties.passedResources),
	failedResources = toint(properties.failedResources),
	skippedResources = toint(properties.skippedResources)
| project subscriptionId, standardName, controlName, assessmentName, assessmentDescription, state, passedResources, failedResources, skippedResources`

var definitions = []Definition{
	{
		Kind:     SecureScores,
		Label:    "Secure Scores",
		BaseName: "SecureScores",
		Fields:   []string{"subscriptionId", "tenantId", "name", "scoreCurrent", "scoreMax", "scorePercentage", "weight"},
		query:    secureScoresQuery,
	},
	{
		Kind:     SecureScoreControls,
		Label:    "Secure Score Controls",
		BaseName: "SecureScoreControls",
		Fields:   []string{"subscriptionId", "controlName", "scoreCurrent", "scoreMax", "healthyCount", "unhealthyCount", "notApplicableCount", "weight"},
		query:    secureScoreControlsQuery,
	},
	{
		Kind:     SecurityAssessments,
		Label:    "Security Assessments",
		BaseName: "SecurityAssessments",
		Fields:   []string{"subscriptionId", "assessmentName", "severity", "statusCode", "statusCause", "resourceId", "id"},
		query:    securityAssessmentsQuery,
	},
	{
		Kind:     SecurityRecommendations,
		Label:    "Security Recommendations",
		BaseName: "SecurityRecommendations",
		Fields:   []string{"subscriptionId", "recommendationName", "severity", "remediation", "resourceId", "resourceType", "id"},
		query:    securityRecommendationsQuery,
	},
	{
		Kind:     ComplianceStandards,
		Label:    "Compliance Standards",
		BaseName: "ComplianceStandards",
		Fields:   []string{"subscriptionId", "standardName", "state", "passedControls", "failedControls", "skippedControls"},
		query:    complianceStandardsQuery,
	},
	{
		Kind:     ComplianceControls,
		Label:    "Compliance Controls",
		BaseName: "ComplianceControls",
		Fields:   []string{"subscriptionId", "standardName", "controlName", "controlDescription", "state", "passedAssessments", "failedAssessments", "skippedAssessments"},
		query:    complianceControlsQuery,
	},
	{
		Kind:     ComplianceAssessments,
		Label:    "Compliance Assessments",
		BaseName: "ComplianceAssessments",
		Fields:   []string{"subscriptionId", "standardName", "controlName", "assessmentName", "assessmentDescription", "state", "passedResources", "failedResources", "skippedResources"},
		query:    complianceAssessmentsQuery,
	},
}

// All returns every definition in execution order.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Definitions returns the definitions the pipeline should run for the given
// feature toggles, in execution order: secure scores, secure score controls,
// assessments, then recommendations if enabled, then the three compliance
// queries if enabled.
func Definitions(includeCompliance, includeRecommendations bool) []Definition {
	out := make([]Definition, 0, len(definitions))
	for _, d := range definitions {
		switch d.Kind {
		case SecurityRecommendations:
			if !includeRecommendations {
				continue
			}
		case ComplianceStandards, ComplianceControls, ComplianceAssessments:
			if !includeCompliance {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}
