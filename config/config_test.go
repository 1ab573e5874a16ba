package config

import (
	"testing"
	"time"
)

var testDoc = []byte(`
resources:
  - name: ibm_fez
    family: direct-access
    endpoint: https://da.example.com
    authEndpoint: https://iam.example.com
    apiKey: secret
    serviceCRN: "crn:v1:test"
    store:
      endpoint: https://s3.example.com
      key: ak
      secret: sk
      region: us-east-1
      bucket: qres-staging
    jobTimeout: 30m
  - name: ibm_torino
    family: runtime-service
    endpoint: https://qrs.example.com
    authEndpoint: https://iam.example.com
    apiKey: secret
    serviceCRN: "crn:v1:test"
    session:
      mode: batch
      maxTTL: 2h
`)

func TestParse(t *testing.T) {
	conf := DefaultConfig()
	if err := Parse(testDoc, &conf); err != nil {
		t.Fatal(err)
	}
	if len(conf.Resources) != 2 {
		t.Fatal("expected 2 resources", len(conf.Resources))
	}

	da, ok := conf.Find("ibm_fez")
	if !ok {
		t.Fatal("missing resource ibm_fez")
	}
	if da.Family != DirectAccess {
		t.Error("unexpected family", da.Family)
	}
	if da.Store.Bucket != "qres-staging" {
		t.Error("unexpected bucket", da.Store.Bucket)
	}
	if time.Duration(da.JobTimeout) != 30*time.Minute {
		t.Error("unexpected job timeout", da.JobTimeout)
	}
	// Defaults fill in unset fields.
	if time.Duration(da.RequestTimeout) != time.Minute {
		t.Error("unexpected request timeout default", da.RequestTimeout)
	}
	if da.Session.Mode != "dedicated" {
		t.Error("unexpected session mode default", da.Session.Mode)
	}

	qrs, _ := conf.Find("ibm_torino")
	if qrs.Session.Mode != "batch" {
		t.Error("unexpected session mode", qrs.Session.Mode)
	}
	if time.Duration(qrs.Session.MaxTTL) != 2*time.Hour {
		t.Error("unexpected session ttl", qrs.Session.MaxTTL)
	}
}

func TestValidate(t *testing.T) {
	conf := DefaultConfig()
	if err := Parse(testDoc, &conf); err != nil {
		t.Fatal(err)
	}
	for _, r := range conf.Resources {
		if err := r.Validate(); err != nil {
			t.Error("expected valid descriptor", r.Name, err)
		}
	}

	bad := DefaultResource()
	bad.Name = "no_endpoint"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing endpoint")
	}

	bad = DefaultResource()
	bad.Name = "staged_no_bucket"
	bad.Endpoint = "https://da.example.com"
	bad.AuthEndpoint = "https://iam.example.com"
	bad.APIKey = "secret"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing object store")
	}

	bad.Family = "unknown-family"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown family")
	}
}

func TestFindMissing(t *testing.T) {
	conf := DefaultConfig()
	if _, ok := conf.Find("nope"); ok {
		t.Error("expected miss")
	}
}
