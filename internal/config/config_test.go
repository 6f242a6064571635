package config

import (
	"strings"
	"testing"
)

const sampleDoc = `{
  "mem_spec": {"standard": "ddr4"},
  "address_map": {
    "byte_bits": [0,1,2],
    "bank_group_bits": [3,4],
    "bank_bits": [5,6],
    "column_bits": [7,8,9,10,11,12,13,14,15,16],
    "row_bits": [17,18,19,20,21,22,23,24,25,26,27,28,29,30,31,32,33],
    "xor_pairs": [{"a": 5, "b": 20}]
  },
  "controller": {
    "page_policy": "Open",
    "scheduler": "FrFcfs",
    "scheduler_buffer": "Bankwise",
    "cmd_mux": "Oldest",
    "resp_queue": "Fifo",
    "refresh_policy": "AllBank",
    "power_down_policy": "Staggered",
    "power_down_timeout": 8,
    "self_refresh_timeout": 64,
    "request_buffer_size": 4
  },
  "sim": {"simulation_name": "smoke"}
}`

func TestLoadAndBuildRoundTrip(t *testing.T) {
	doc, err := Load(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	spec, err := doc.BuildMemSpec()
	if err != nil {
		t.Fatalf("BuildMemSpec: %v", err)
	}
	if spec.Standard.String() != "DDR4" {
		t.Fatalf("standard = %v, want DDR4", spec.Standard)
	}

	if _, err := doc.BuildDecoder(spec); err != nil {
		t.Fatalf("BuildDecoder: %v", err)
	}

	cfg, err := doc.BuildPolicy()
	if err != nil {
		t.Fatalf("BuildPolicy: %v", err)
	}
	if cfg.RequestBufferSize != 4 {
		t.Fatalf("request_buffer_size = %d, want 4", cfg.RequestBufferSize)
	}
	if cfg.SelfRefreshTimeout != 64 {
		t.Fatalf("self_refresh_timeout = %d, want 64", cfg.SelfRefreshTimeout)
	}
}

func TestBuildPolicyRejectsUnknownEnum(t *testing.T) {
	doc, err := Load(strings.NewReader(`{
		"mem_spec": {"standard": "ddr3"},
		"address_map": {},
		"controller": {"page_policy": "Bogus", "request_buffer_size": 1},
		"sim": {}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := doc.BuildPolicy(); err == nil {
		t.Fatal("expected an error for an unknown page_policy value")
	}
}

func TestBuildMemSpecRejectsUnknownStandard(t *testing.T) {
	doc, err := Load(strings.NewReader(`{
		"mem_spec": {"standard": "nope"},
		"address_map": {},
		"controller": {"request_buffer_size": 1},
		"sim": {}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := doc.BuildMemSpec(); err == nil {
		t.Fatal("expected an error for an unknown standard")
	}
}

func TestBuildPolicyRejectsZeroRequestBuffer(t *testing.T) {
	doc, err := Load(strings.NewReader(`{
		"mem_spec": {"standard": "ddr3"},
		"address_map": {},
		"controller": {},
		"sim": {}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := doc.BuildPolicy(); err == nil {
		t.Fatal("expected an error for request_buffer_size == 0")
	}
}
