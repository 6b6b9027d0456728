// Package similarity 提供房源之间的相似度计算，全部为无状态纯函数。
//
// 打分链路（rank.score）与相似图（graph）共用这些函数：
//   - Price：相对价差经高斯核映射
//   - Location：城市 / 街区匹配，坐标距离兜底抬分
//   - Amenities：设施标签 Jaccard
//   - Cosine：7 维特征向量余弦
//   - Pairwise：以上四项的固定线性组合，只用于建图
package similarity
