package core

// LearnConfig 是偏好学习相关的配置接口，用于提供默认值。
type LearnConfig interface {
	// MinConfidence 返回置信度下界（置信度永不为 0）
	MinConfidence() float64

	// MaxConfidence 返回置信度上界（置信度永不为 1）
	MaxConfidence() float64

	// BaseLearningRate 返回基础学习率
	BaseLearningRate() float64

	// MinLearningRate 返回学习率下界
	MinLearningRate() float64

	// MaxLearningRate 返回学习率上界
	MaxLearningRate() float64
}

// DefaultLearnConfig 是默认的学习配置实现。
type DefaultLearnConfig struct{}

func (c DefaultLearnConfig) MinConfidence() float64 {
	return 0.1
}

func (c DefaultLearnConfig) MaxConfidence() float64 {
	return 0.95
}

func (c DefaultLearnConfig) BaseLearningRate() float64 {
	return 0.3
}

func (c DefaultLearnConfig) MinLearningRate() float64 {
	return 0.1
}

func (c DefaultLearnConfig) MaxLearningRate() float64 {
	return 0.7
}
