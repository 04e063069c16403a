package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: sns1
    type: SNS
    sns:
      topic_arn: " arn:aws:sns:us-east-1:123:articles "
      region: us-east-1
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "sns1" {
		t.Fatalf("expected only sns1 enabled, got %#v", enabled)
	}
	if enabled[0].Type != TypeSNS || enabled[0].SNS.TopicARN != "arn:aws:sns:us-east-1:123:articles" {
		t.Fatalf("config not sanitized: %#v", enabled[0])
	}

	http1, ok := reg.ByID("http1")
	if !ok || http1.HTTP.Method != httpDefaultMethod || http1.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %#v", http1.HTTP)
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers":[
	  {"id":"a","type":"http","http":{"url":"https://example.com"}},
	  {"id":"a","type":"http","http":{"url":"https://example.com/2"}}
	]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidatePublisherConfigRejectsMissingBlocks(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "h1", Type: TypeHTTP},
		{ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "q"}},
		{ID: "t1", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		{ID: "g1", Type: TypeGCPPubSub, PubSub: &PubSubConfig{ProjectID: "p"}},
		{ID: "q2", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "q", Region: "r", Auth: AWSAuth{AccessKeyID: "only-key"}}},
	}
	for _, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("expected validation error for %#v", cfg)
		}
	}
}
