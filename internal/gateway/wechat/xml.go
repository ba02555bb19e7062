package wechat

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
)

// EncodeXML 将参数编码为v2协议的单层XML报文
func EncodeXML(params map[string]string) []byte {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("<xml>")
	for _, k := range keys {
		buf.WriteByte('<')
		buf.WriteString(k)
		buf.WriteByte('>')
		if err := xml.EscapeText(&buf, []byte(params[k])); err != nil {
			continue
		}
		buf.WriteString("</")
		buf.WriteString(k)
		buf.WriteByte('>')
	}
	buf.WriteString("</xml>")
	return buf.Bytes()
}

// DecodeXML 解析v2协议的单层XML报文为字段表
func DecodeXML(data []byte) (map[string]string, error) {
	fields := make(map[string]string)
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var key string
	var depth int
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				key = t.Name.Local
			}
		case xml.EndElement:
			depth--
			key = ""
		case xml.CharData:
			if depth == 2 && key != "" {
				fields[key] = string(t)
			}
		}
	}
	return fields, nil
}
