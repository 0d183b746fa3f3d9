// Package profgnn trains graph-neural-network surrogates for solar wind
// profile simulations.
//
// The module covers the full loop from preprocessed data to checkpointed
// model: loading normalized profile tensors and their normalization metadata
// (profile), converting profiles into chain graphs and batching them (graph),
// the reference message-passing model (nn), AdamW with exponential
// learning-rate decay (optim), regression metrics (metrics), denormalization
// back to physical units (preprocessing), true-vs-predicted profile plots
// (viz), and the trainer with validation and crash-safe checkpoints
// (training).
//
// A runnable end-to-end command lives in examples/train.
package profgnn
