package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contractabi/internal/domain/valueobject"
)

func TestClassify(t *testing.T) {
	receivers := []valueobject.Receiver{
		valueobject.ReceiverNone,
		valueobject.ReceiverImmutable,
		valueobject.ReceiverMutable,
	}

	t.Run("tag wins over receiver", func(t *testing.T) {
		tags := map[valueobject.AttributeTag]valueobject.FunctionType{
			valueobject.TagInit:    valueobject.FunctionTypeInit,
			valueobject.TagPayable: valueobject.FunctionTypePayable,
			valueobject.TagPrivate: valueobject.FunctionTypePrivate,
		}
		for tag, want := range tags {
			for _, r := range receivers {
				assert.Equal(t, want, Classify(tag, r), "tag=%s receiver=%s", tag, r)
			}
		}
	})

	t.Run("receiver decides without tag", func(t *testing.T) {
		assert.Equal(t, valueobject.FunctionTypeWrite, Classify(valueobject.TagNone, valueobject.ReceiverMutable))
		assert.Equal(t, valueobject.FunctionTypeRead, Classify(valueobject.TagNone, valueobject.ReceiverImmutable))
		assert.Equal(t, valueobject.FunctionTypeUnknown, Classify(valueobject.TagNone, valueobject.ReceiverNone))
	})
}
