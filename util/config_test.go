package util_test

import (
	"container/list"
	"hash/crc32"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gofdfs/util"
	"github.com/hetianyi/gox/logger"
)

func init() {
	logger.Init(&logger.Config{
		Level: logger.DebugLevel,
	})
}

func TestParseServer(t *testing.T) {
	s, err := util.ParseServer("group1@192.168.1.10:23000/2")
	if err != nil {
		t.Fatal(err)
	}
	if s.Group != "group1" || s.Host != "192.168.1.10" || s.Port != 23000 || s.StorePathIndex != 2 {
		t.Fatalf("unexpected server %+v", s)
	}
	if s.ConnectionString() != "192.168.1.10:23000" {
		t.Fatalf("unexpected connection string %s", s.ConnectionString())
	}

	s, err = util.ParseServer(" storage.local:23000 ")
	if err != nil {
		t.Fatal(err)
	}
	if s.Group != "" || s.Host != "storage.local" || s.StorePathIndex != 0 {
		t.Fatalf("unexpected server %+v", s)
	}

	for _, bad := range []string{"", "host", "host:0", "host:99999", "a@b@host:1", "host:23000/256", "grp!@host:1"} {
		if _, err = util.ParseServer(bad); err == nil {
			t.Fatalf("expect error for %q", bad)
		}
	}

	list, err := util.ParseServers([]string{"g1@h1:1", " ", "h2:2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[1].Host != "h2" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestLoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "gofdfs-util-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	jsonFile := filepath.Join(dir, "client.json")
	ioutil.WriteFile(jsonFile, []byte(`{"storages":["group1@127.0.0.1:23000"],"connectTimeout":3,"logLevel":"debug"}`), 0644)
	var c common.ClientConfig
	if err = util.LoadConfig(jsonFile, &c); err != nil {
		t.Fatal(err)
	}
	if len(c.Storages) != 1 || c.ConnectTimeout != 3 || c.LogLevel != "debug" {
		t.Fatalf("unexpected config %+v", c)
	}

	yamlFile := filepath.Join(dir, "gateway.yml")
	ioutil.WriteFile(yamlFile, []byte("storages:\n  - 127.0.0.1:23000\n  - group2@127.0.0.2:23000\nnetworkTimeout: 9\nhttpPort: 9090\n"), 0644)
	var g common.GatewayConfig
	if err = util.LoadConfig(yamlFile, &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Storages) != 2 || g.NetworkTimeout != 9 || g.HttpPort != 9090 {
		t.Fatalf("unexpected config %+v", g)
	}
	if err = util.ValidateGatewayConfig(&g); err != nil {
		t.Fatal(err)
	}
	if g.ConnectTimeout != common.DEFAULT_CONNECT_TIMEOUT || g.LogLevel != "info" || len(g.ParsedStorages) != 2 {
		t.Fatalf("unexpected validated config %+v", g)
	}
}

func TestValidateClientConfig(t *testing.T) {
	c := &common.ClientConfig{Storages: []string{"bad"}}
	if err := util.ValidateClientConfig(c); err == nil {
		t.Fatal("expect error")
	}
	c = &common.ClientConfig{ConnectTimeout: -1}
	if err := util.ValidateClientConfig(c); err == nil {
		t.Fatal("expect error")
	}
	if err := util.ValidateGatewayConfig(&common.GatewayConfig{}); err == nil {
		t.Fatal("expect error without storages")
	}

	os.Setenv(common.ENV_STORAGES, "group1@10.0.0.1:23000,10.0.0.2:23000")
	defer os.Unsetenv(common.ENV_STORAGES)
	c = &common.ClientConfig{LogLevel: "nonsense"}
	if err := util.ValidateClientConfig(c); err != nil {
		t.Fatal(err)
	}
	if len(c.ParsedStorages) != 2 || c.LogLevel != "info" || c.NetworkTimeout != common.DEFAULT_NETWORK_TIMEOUT {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestConfigMap(t *testing.T) {
	dir, err := ioutil.TempDir("", "gofdfs-util-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	configMap, err := util.InitialConfigMap(filepath.Join(dir, "sub", common.DEFAULT_CONFIG_MAP_FILE))
	if err != nil {
		t.Fatal(err)
	}
	defer configMap.Close()

	configMap.PutConfig(common.CONFIG_KEY_STORAGES, []byte("group1@127.0.0.1:23000"))
	configMap.PutConfig(common.CONFIG_KEY_NETWORK_TIMEOUT, []byte("12"))
	configMap.PutConfig(common.CONFIG_KEY_LOG_LEVEL, []byte("warn"))

	c := &common.ClientConfig{LogLevel: "debug"}
	if err = util.ApplyConfigMap(c, configMap); err != nil {
		t.Fatal(err)
	}
	if len(c.Storages) != 1 || c.NetworkTimeout != 12 || c.ConnectTimeout != 0 || c.LogLevel != "debug" {
		t.Fatalf("unexpected config %+v", c)
	}

	all, err := configMap.ListConfig()
	if err != nil || len(all) != 3 {
		t.Fatalf("unexpected settings %v, %v", all, err)
	}
	configMap.DeleteConfig(common.CONFIG_KEY_LOG_LEVEL)
	if v, _ := configMap.GetConfig(common.CONFIG_KEY_LOG_LEVEL); v != nil {
		t.Fatalf("expect deleted, got %q", v)
	}

	if err = util.CheckConfigKey("unknown", "x"); err == nil {
		t.Fatal("expect error for unknown key")
	}
	if err = util.CheckConfigKey(common.CONFIG_KEY_CONNECT_TIMEOUT, "-3"); err == nil {
		t.Fatal("expect error for negative timeout")
	}
}

func TestParseMetaList(t *testing.T) {
	list, err := util.ParseMetaList([]string{"width=100", "note=a=b", "empty="})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[1].Value != "a=b" || list[2].Value != "" {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, err = util.ParseMetaList([]string{"=x"}); err == nil {
		t.Fatal("expect error")
	}
	if s := util.FormatMetaList(list); s[1] != "note=a=b" {
		t.Fatalf("unexpected format %v", s)
	}
}

func TestPushUnique(t *testing.T) {
	var l list.List
	util.PushUnique(&l, "a", " b ", "a", "", "c")
	if s := util.ListToStrings(&l); len(s) != 3 || s[1] != "b" {
		t.Fatalf("unexpected list %v", s)
	}
	if !util.StringListExists(&l, "c") || util.StringListExists(&l, "d") {
		t.Fatal("unexpected StringListExists result")
	}
}

func TestCrc32OfFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "gofdfs-util-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	local := filepath.Join(dir, "a.txt")
	ioutil.WriteFile(local, []byte("hello"), 0644)
	crc, err := util.Crc32OfFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if crc != crc32.ChecksumIEEE([]byte("hello")) {
		t.Fatalf("unexpected crc %x", crc)
	}
	h := util.CreateCrc32Hash()
	h.Write([]byte("hello"))
	if util.GetCrc32HashString(h) != "3610a686" {
		t.Fatalf("unexpected crc string %s", util.GetCrc32HashString(h))
	}
}
