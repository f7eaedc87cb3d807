package provider

import (
	"testing"

	"stock-screener/internal/types"
)

func TestFilterUniverseBoards(t *testing.T) {
	list := []types.StockInfo{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "000858", Name: "五粮液"},
		{Code: "688981", Name: "中芯国际"},
		{Code: "300750", Name: "宁德时代"},
		{Code: "830799", Name: "艾融软件"},
		{Code: "920001", Name: "某北交所"},
		{Code: "430047", Name: "诺思兰德"},
		{Code: "200596", Name: "古井贡B"},
		{Code: "900948", Name: "伊泰B股"},
	}

	got := FilterUniverse(list, FilterOptions{ExcludeBoards: true})
	if len(got) != 2 {
		t.Fatalf("got %d listings, want 2: %v", len(got), got)
	}
	if got[0].Code != "600519" || got[1].Code != "000858" {
		t.Errorf("kept %v", got)
	}
}

func TestFilterUniverseST(t *testing.T) {
	list := []types.StockInfo{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "600005", Name: "ST武钢"},
		{Code: "000007", Name: "*ST全新"},
	}

	got := FilterUniverse(list, FilterOptions{ExcludeST: true})
	if len(got) != 1 || got[0].Code != "600519" {
		t.Fatalf("kept %v", got)
	}
}

func TestFilterUniverseNoOptionsKeepsAll(t *testing.T) {
	list := []types.StockInfo{
		{Code: "688981", Name: "中芯国际"},
		{Code: "600005", Name: "ST武钢"},
	}
	got := FilterUniverse(list, FilterOptions{})
	if len(got) != 2 {
		t.Fatalf("kept %d, want 2", len(got))
	}
}
