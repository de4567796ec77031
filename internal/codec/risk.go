package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const RiskDecisionPayloadSize = 45

// EncodeRiskDecision serializes a risk decision into a fixed-size payload.
func EncodeRiskDecision(dst []byte, decision schema.RiskDecision) []byte {
	if cap(dst) < RiskDecisionPayloadSize {
		dst = make([]byte, RiskDecisionPayloadSize)
	} else {
		dst = dst[:RiskDecisionPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], decision.OrderID)
	binary.LittleEndian.PutUint16(dst[8:10], uint16(decision.Action))
	binary.LittleEndian.PutUint16(dst[10:12], uint16(decision.Reason))
	dst[12] = byte(decision.Side)
	binary.LittleEndian.PutUint64(dst[13:21], uint64(decision.Price))
	binary.LittleEndian.PutUint64(dst[21:29], uint64(decision.Volume))
	binary.LittleEndian.PutUint64(dst[29:37], uint64(decision.Position))
	binary.LittleEndian.PutUint64(dst[37:45], uint64(decision.Limit))

	return dst
}

// DecodeRiskDecision parses a fixed-size risk decision payload.
func DecodeRiskDecision(src []byte) (schema.RiskDecision, bool) {
	if len(src) < RiskDecisionPayloadSize {
		return schema.RiskDecision{}, false
	}
	return schema.RiskDecision{
		OrderID:  binary.LittleEndian.Uint64(src[0:8]),
		Action:   schema.RiskAction(binary.LittleEndian.Uint16(src[8:10])),
		Reason:   schema.RiskReason(binary.LittleEndian.Uint16(src[10:12])),
		Side:     schema.Side(src[12]),
		Price:    schema.Price(int64(binary.LittleEndian.Uint64(src[13:21]))),
		Volume:   schema.Volume(int64(binary.LittleEndian.Uint64(src[21:29]))),
		Position: schema.Volume(int64(binary.LittleEndian.Uint64(src[29:37]))),
		Limit:    schema.Volume(int64(binary.LittleEndian.Uint64(src[37:45]))),
	}, true
}
