package models

import "fmt"

// NoticeKind classifies a recovered, non-fatal condition.
type NoticeKind string

const (
	NoticeSkipped      NoticeKind = "skipped"
	NoticeUploadFailed NoticeKind = "upload_failed"
	NoticeDegraded     NoticeKind = "degraded"
	NoticeDefaulted    NoticeKind = "defaulted"
)

// Notice records something an operator should review. Notices never abort a
// document.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Subject string     `json:"subject,omitempty"`
	Message string     `json:"message"`
}

func (n Notice) String() string {
	if n.Subject == "" {
		return fmt.Sprintf("%s: %s", n.Kind, n.Message)
	}
	return fmt.Sprintf("%s: %s: %s", n.Kind, n.Subject, n.Message)
}
