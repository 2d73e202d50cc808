package store

import (
	"fmt"
	"strings"
	"time"

	hashids "github.com/speps/go-hashids/v2"
)

// CaseReferenceGenerator produces the public, human-readable case codes
// printed on client receipts (e.g. FTH-9K3MNT2A). The hashid encodes client
// id plus submission timestamp, so codes never collide and never expose raw
// database ids.
type CaseReferenceGenerator struct {
	hd *hashids.HashID
}

func NewCaseReferenceGenerator(salt string) (*CaseReferenceGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = "abcdefghjkmnpqrstuvwxyz23456789"

	hd, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &CaseReferenceGenerator{hd: hd}, nil
}

func (g *CaseReferenceGenerator) Generate(clientID int64) (string, error) {
	code, err := g.hd.EncodeInt64([]int64{clientID, time.Now().UnixMilli()})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FTH-%s", strings.ToUpper(code)), nil
}
