// Package gcp-cmek-logging provides tooling for CMEK-encrypted Cloud Logging
// environments on Google Cloud.
//
// # Overview
//
// The repository ships a single CLI, cmekctl, that provisions and tears down
// the resources needed to route logs into a customer-managed-key encrypted
// log bucket:
//   - Organization folders and disposable test projects
//   - KMS keyrings and crypto keys
//   - CMEK-encrypted log buckets with retention and Log Analytics
//   - Log sinks and _Default sink exclusions
//   - Monitoring dashboards for the resulting log stack
//
// # Installation
//
//	go install github.com/blackwell-systems/gcp-cmek-logging/cmd/cmekctl@latest
//
// # Quick Start
//
//	cmekctl setup --bucket-project my-proj --bucket-id cmek-logs \
//	    --location us-central1 --key-ring logging-ring --key-name logging-key \
//	    --auto-create-kms
//	cmekctl status
//	cmekctl teardown --force
//
// Every mutating command is idempotent: resources are probed before creation,
// and teardown treats already-absent resources as success.
//
// # Authentication
//
// cmekctl uses Application Default Credentials. Run
// "gcloud auth application-default login" or point
// GOOGLE_APPLICATION_CREDENTIALS at a service-account key.
//
// # License
//
// Apache 2.0 - See LICENSE file for details.
package gcpcmeklogging
