package logginghelper

import (
	"github.com/Egor213/AuditTrack/internal/export"
	log "github.com/sirupsen/logrus"
)

func LogQueryIssued(transport, session, op string) {
	log.WithFields(log.Fields{
		"transport": transport,
		"session":   session,
		"op":        op,
	}).Debug("Log query issued")
}

func LogQueryFailed(transport, session, op string, err error) {
	log.WithFields(log.Fields{
		"transport": transport,
		"session":   session,
		"op":        op,
		"error":     err,
	}).Warn("Log query failed")
}

func LogExportDelivered(session string, artifact export.Artifact) {
	log.WithFields(log.Fields{
		"session":  session,
		"filename": artifact.Filename,
		"bytes":    len(artifact.Data),
	}).Info("Export delivered")
}

func LogExportFailed(session string, format export.Format, err error) {
	log.WithFields(log.Fields{
		"session": session,
		"format":  format,
		"error":   err,
	}).Error("Export failed")
}
