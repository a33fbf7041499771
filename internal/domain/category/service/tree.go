package service

// ExpandDescendants 返回 roots 及其全部后代分类 ID（先序）
// 使用显式栈迭代遍历，visited 保证每个节点只出现一次，数据中存在环时也能终止
func ExpandDescendants(roots []string, children map[string][]string) []string {
	visited := make(map[string]bool)
	result := make([]string, 0, len(roots))

	for _, root := range roots {
		stack := []string{root}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[id] {
				continue
			}
			visited[id] = true
			result = append(result, id)

			kids := children[id]
			// 逆序入栈，保持子节点原有顺序出栈
			for i := len(kids) - 1; i >= 0; i-- {
				if !visited[kids[i]] {
					stack = append(stack, kids[i])
				}
			}
		}
	}
	return result
}
