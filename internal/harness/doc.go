// Package harness runs import scenarios against a fresh store and checks
// the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: template_conflict
//	description: "A page cannot change template"
//	fallback_user: first
//	templates:
//	  - name: Page
//	    blocks:
//	      - key: body
//	users:
//	  - owner@example.com
//	steps:
//	  - import: |
//	      {"pages": {"/about": {"title": "About", "template": "Page", "contents": {}}}}
//	    expect:
//	      success: ["Created page '/about'"]
//	      error: []
//	assertions:
//	  - type: page
//	    path: /about
//	    expect: { template: Page }
//	  - type: round_trip
//
// Each step imports one snapshot document. Expected report buckets are
// compared exactly when given and ignored when omitted; `rejected: true`
// expects the document to fail parsing.
//
// # Assertion Types
//
//   - page: the page exists and its snapshot fields match expect
//   - page_absent: no page has the path
//   - content: the page's block content equals content (JSON, key order ignored)
//   - post: the post exists and its snapshot fields match expect
//   - menu: the menu exists, its fields match expect and its item texts match items
//   - round_trip: export, re-import and export again changes nothing
//
// # Determinism
//
// Every scenario runs in its own in-memory database with a
// testutil.DeterministicClock and a fixed run id, so transcripts are
// byte-stable and can be compared against golden files.
package harness
